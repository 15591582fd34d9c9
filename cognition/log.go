package cognition

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "cognition")
