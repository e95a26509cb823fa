package config

import (
	"fmt"

	"github.com/marmos91/dittoweb/pkg/adapter"
	httpadapter "github.com/marmos91/dittoweb/pkg/adapter/http"
)

// CreateAdapters creates all enabled protocol adapters from the configuration.
//
// Parameters:
//   - cfg: The complete DittoWeb configuration
//   - rt: Route tree, worker pool, static store and metrics shared by the adapters
//   - opts: Extra HTTP adapter options (e.g. httpadapter.WithOnConnect)
//
// Returns:
//   - []adapter.Adapter: List of enabled adapters ready to be added to the server
//   - error: Any error during adapter creation
func CreateAdapters(cfg *Config, rt *Runtime, opts ...httpadapter.Option) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.Adapters.HTTP.Enabled {
		if rt == nil || rt.Tree == nil || rt.Pool == nil || rt.Statics == nil {
			return nil, fmt.Errorf("http adapter: route tree, pool and static store are required")
		}

		httpOpts := make([]httpadapter.Option, 0, len(opts)+1)
		if rt.Metrics != nil {
			httpOpts = append(httpOpts, httpadapter.WithMetrics(rt.Metrics.HTTPMetrics))
		}
		httpOpts = append(httpOpts, opts...)

		statics := httpadapter.Statics{
			Serve:    cfg.Statics.Serve,
			NotFound: cfg.Statics.Custom404,
			Sniff:    cfg.Statics.SniffContentType,
			Store:    rt.Statics,
		}
		adapters = append(adapters, httpadapter.New(cfg.Adapters.HTTP, rt.Tree, rt.Pool, statics, httpOpts...))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}

	return adapters, nil
}
