package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.fiblab.net/sim/wayfinding/config"
	"git.fiblab.net/sim/wayfinding/engine"
	"git.fiblab.net/sim/wayfinding/world"
	"git.fiblab.net/sim/wayfinding/worldgen"
	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

var (
	// 配置信息
	configFile   = flag.String("config", "", "config file path (yaml/json/toml), empty means built-in defaults")
	mongoURI     = flag.String("mongo_uri", "", "mongo db uri")
	mapPathStr   = flag.String("map", "", "city map [format: {fspath}, {db}.{col} or synthetic:WxH]")
	outputStr    = flag.String("output", "", "daily flows output, overrides export.output [format: {fspath}.db or {db}.{col}]")
	grpcEndpoint = flag.String("listen", "localhost:52101", "control service listening address, empty means disabled")
	logLevel     = flag.String("log-level", "info", "log level [debug, info, warn, error, fatal, panic]")

	// 性能测试
	benchmark = flag.Bool("benchmark", false, "benchmark mode")
	pprofAddr = flag.String("pprof", "", "pprof listening address")

	LOG_LEVELS = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	flag.Parse()
	if level, ok := LOG_LEVELS[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", *logLevel)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if *outputStr != "" {
		cfg.Export.Output = *outputStr
	}
	mapPath, err := NewPath(*mapPathStr)
	if err != nil {
		log.Fatalf("invalid map path: %s", err)
	}
	if mapPath == nil {
		log.Fatal("-map is required")
	}
	outputPath, err := NewOutputPath(cfg.Export.Output)
	if err != nil {
		log.Fatalf("invalid output path: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var client *mongo.Client
	if mapPath.Mongo() || (outputPath != nil && outputPath.Mongo()) {
		if client, err = connectMongo(ctx, *mongoURI); err != nil {
			log.Fatalf("mongo: %v", err)
		}
		defer client.Disconnect(context.Background())
	}

	w, err := loadWorld(ctx, client, mapPath, cfg)
	if err != nil {
		log.Fatalf("load map %s: %v", mapPath, err)
	}

	if *pprofAddr != "" {
		// 启动pprof
		startHTTPDebugger(*pprofAddr)
	}

	if *benchmark {
		// 性能测试
		runBenchmark(w)
		return
	}

	exporter, err := openExporter(client, outputPath, cfg)
	if err != nil {
		log.Fatalf("open output %s: %v", outputPath, err)
	}
	if exporter != nil {
		defer exporter.Close(context.Background())
	}

	// 控制服务：暂停、恢复、查询状态与按需规划
	server := NewControlServer()
	var s *http.Server
	if *grpcEndpoint != "" {
		mux := http.NewServeMux()
		server.Register(mux)
		// 使用HTTP/2 w.o. TLS
		s = &http.Server{
			Addr:    *grpcEndpoint,
			Handler: h2c.NewHandler(mux, &http2.Server{}),
		}
		go func() {
			log.Infof("control server listening at %v", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to serve: %v", err)
			}
		}()
	}

	// 优雅退出：第一次信号在下一步开始前停止模拟，第二次强制结束
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Info("stopping...")
		server.Close()
		cancel()
		<-signalCh
		os.Exit(1)
	}()

	err = runJobs(ctx, w, exporter, server)
	if s != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
		s.Shutdown(shutdownCtx)
		done()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("simulation failed: %v", err)
	}
	log.Info("wayfinding closes")
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("-mongo_uri is required for {db}.{col} locators")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

func loadWorld(ctx context.Context, client *mongo.Client, p *Path, cfg *config.Config) (*world.World, error) {
	var ds *world.Dataset
	var err error
	switch {
	case p.Synthetic():
		log.Infof("generating synthetic city %dx%d", p.Width, p.Height)
		ds = worldgen.Grid(worldgen.City(p.Width, p.Height, cfg.Simulation.Seed))
	case p.File != "":
		ds, err = world.LoadFile(p.File)
	default:
		ds, err = world.LoadMongo(ctx, client.Database(p.DB).Collection(p.Coll))
	}
	if err != nil {
		return nil, err
	}
	return world.New(ds, cfg)
}

func openExporter(client *mongo.Client, p *Path, cfg *config.Config) (engine.Exporter, error) {
	switch {
	case p == nil:
		log.Warn("no output configured, daily flows are only logged")
		return nil, nil
	case p.File != "":
		return engine.OpenSQLite(p.File, cfg.Export.BatchSize)
	default:
		return engine.NewMongoExporter(client.Database(p.DB), p.Coll, cfg.Export.BatchSize), nil
	}
}

// 依次运行各个job，控制服务始终指向当前的模拟
func runJobs(ctx context.Context, w *world.World, exporter engine.Exporter, server *ControlServer) error {
	jobs := max(1, w.Config().Simulation.Jobs)
	for job := 1; job <= jobs; job++ {
		sim, err := engine.New(ctx, w, exporter, job)
		if err != nil {
			return fmt.Errorf("job %d: %w", job, err)
		}
		server.Attach(sim)
		if err := sim.Run(ctx); err != nil {
			return fmt.Errorf("job %d: %w", job, err)
		}
	}
	return nil
}
