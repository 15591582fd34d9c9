package heuristics

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "heuristics")
