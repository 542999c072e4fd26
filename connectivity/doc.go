// Package connectivity provides reachability probes and a polling monitor
// that feeds connectivity transitions into consumers such as the sync queue.
//
// A Probe answers whether the remote system is reachable right now. The
// Monitor polls a probe on an interval, caches the latest verdict, and
// notifies registered listeners when the verdict flips. The Monitor satisfies
// the queue's Connectivity interface, so it can be injected directly:
//
//	mon, _ := connectivity.NewMonitor(connectivity.NewHTTPProbe("https://api.example.com/ping"), connectivity.MonitorConfig{})
//	q, _ := queue.New(store, queue.Options{Connectivity: mon})
//	mon.Notify(q)
//	mon.Start()
package connectivity
