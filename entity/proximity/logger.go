package proximity

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "proximity")
