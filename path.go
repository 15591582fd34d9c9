package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.fiblab.net/sim/wayfinding/worldgen"
)

const SYNTHETIC_PREFIX = "synthetic:"

var ErrInvalidLocator = errors.New("locator must look like {fspath}, {db}.{col} or synthetic:WxH")

// Path 数据位置：本地文件、mongo集合或合成网格
type Path struct {
	File string
	DB   string
	Coll string
	// 合成网格的尺寸
	Width  int
	Height int
}

// NewPath 解析{fspath}、{db}.{col}或synthetic:WxH，空字符串返回nil
func NewPath(locator string) (*Path, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, nil
	}
	if size, ok := strings.CutPrefix(locator, SYNTHETIC_PREFIX); ok {
		w, h, err := worldgen.ParseSize(size)
		if err != nil {
			return nil, err
		}
		return &Path{Width: w, Height: h}, nil
	}
	// 检查是否作为文件存在
	if _, err := os.Stat(locator); err == nil {
		return &Path{File: locator}, nil
	}
	return dbDotColl(locator)
}

// NewOutputPath 输出位置：.db/.sqlite后缀视为SQLite文件（可不存在），否则为{db}.{col}
func NewOutputPath(locator string) (*Path, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, nil
	}
	switch strings.ToLower(filepath.Ext(locator)) {
	case ".db", ".sqlite", ".sqlite3":
		return &Path{File: locator}, nil
	}
	return dbDotColl(locator)
}

func dbDotColl(s string) (*Path, error) {
	splitted := strings.Split(s, ".")
	if len(splitted) != 2 || splitted[0] == "" || splitted[1] == "" {
		return nil, fmt.Errorf("%q: %w", s, ErrInvalidLocator)
	}
	return &Path{DB: splitted[0], Coll: splitted[1]}, nil
}

func (p *Path) Synthetic() bool {
	return p.Width > 0 && p.Height > 0
}

func (p *Path) Mongo() bool {
	return p.DB != ""
}

func (p *Path) String() string {
	switch {
	case p.Synthetic():
		return fmt.Sprintf("%s%dx%d", SYNTHETIC_PREFIX, p.Width, p.Height)
	case p.File != "":
		// absolute path
		path, err := filepath.Abs(p.File)
		if err != nil {
			return p.File
		}
		return path
	}
	return p.DB + "." + p.Coll
}
