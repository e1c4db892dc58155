// Package registry is the entry point for instrumenting code from any
// goroutine.
//
// A Registry owns a processor and a scheduler that ticks it. The package
// level helpers build an identity from a name and tags, post the get-or-create
// to the processor and wait for the result, so callers never touch the metric
// tables directly. When called from inside a processor task they run inline.
//
//	reg, err := registry.New(cfg, log)
//	if err != nil {
//		return err
//	}
//	defer reg.Close()
//
//	requests, err := registry.Counter[uint64](reg, "requests", map[string]string{"code": "200"})
//	if err != nil {
//		return err
//	}
//	requests.Inc()
package registry
