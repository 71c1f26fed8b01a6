package mode

import (
	"context"

	"github.com/khaledhikmat/vision-gateway/api"
)

type Processor func(canxCtx context.Context, svcs api.ServicesFactory) error
