package kernelbench

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// cpuFeatures lists the SIMD extensions of the CPU backing the devices.
// golang.org/x/sys/cpu only fills in the struct for the running
// architecture, so the other one reads as all false.
func cpuFeatures() []string {
	var features []string
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasSSE41 || cpu.X86.HasSSE42 {
			features = append(features, "SSE4")
		}
		if cpu.X86.HasAVX {
			features = append(features, "AVX")
		}
		if cpu.X86.HasAVX2 {
			features = append(features, "AVX2")
		}
		if cpu.X86.HasFMA {
			features = append(features, "FMA")
		}
		if cpu.X86.HasAVX512F {
			features = append(features, "AVX512F")
		}
		if cpu.X86.HasAVX512BW {
			features = append(features, "AVX512BW")
		}
		if cpu.X86.HasAVX512VL {
			features = append(features, "AVX512VL")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			features = append(features, "NEON")
		}
		if cpu.ARM64.HasFPHP && cpu.ARM64.HasASIMDHP {
			features = append(features, "FP16")
		}
		if cpu.ARM64.HasSVE {
			features = append(features, "SVE")
		}
	}
	return features
}

// HasFMA reports whether fused multiply-add is available, which is what
// makes the fused workloads worth comparing on this machine.
func HasFMA() bool {
	return cpu.X86.HasFMA || cpu.ARM64.HasASIMD
}

// CPUInfo returns a string describing available CPU features
func CPUInfo() string {
	features := cpuFeatures()
	if len(features) == 0 {
		return "No SIMD extensions detected"
	}
	return "CPU features: " + strings.Join(features, ", ")
}
