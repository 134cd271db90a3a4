package pathway

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "pathway")
