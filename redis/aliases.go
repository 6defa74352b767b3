package redis

import (
	"github.com/firebrand/go-firebrand-common/logger"
)

type Logger = logger.Logger
