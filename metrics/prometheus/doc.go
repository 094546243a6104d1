// Package prometheus exports covariate cache events as Prometheus metrics.
//
//	obs, err := prometheus.NewObserver(prom.DefaultRegisterer, "regcov")
//	if err != nil {
//	    return err
//	}
//	reg := regcov.New(regcov.WithCacheObserver(obs))
package prometheus
