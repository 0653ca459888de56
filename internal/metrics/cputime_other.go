//go:build windows || js
// +build windows js

package metrics

// getProcessCPUTime has no portable rusage equivalent on these
// platforms; the sample is simply omitted.
func getProcessCPUTime() int64 { return 0 }
