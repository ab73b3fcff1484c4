// Package health checks the local proxy exposed by a running engine.
//
// # Health Status
//
//	StatusHealthy     - Engine running, listener up, probe (if any) succeeded
//	StatusUnhealthy   - Listener up but the probe through it failed
//	StatusUnreachable - Engine running but nothing listens on 127.0.0.1:10808
//	StatusStopped     - No engine session
//
// # Check Functions
//
//	health.CheckListener(ctx, addr, timeout)         // TCP reachability
//	health.Probe(ctx, proxyAddr, target, timeout)    // SOCKS5 CONNECT through the proxy
//	health.Uptime(startedAt)                         // Human-readable uptime
//
// Combined:
//
//	result := health.Check(ctx, sup, health.CheckOptions{ProbeTarget: "www.google.com:443"})
//	status := result.Status()
package health
