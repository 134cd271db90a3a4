package viewer

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "viewer")
