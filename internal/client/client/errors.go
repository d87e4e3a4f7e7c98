package client

import (
	"fmt"

	"github.com/dmitrijs2005/canvasser/internal/common"
)

var (
	ErrUnavailable  = fmt.Errorf("server unavailable: %w", common.ErrNetwork)
	ErrUnauthorized = common.ErrUnauthorized
)
