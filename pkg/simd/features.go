package simd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ajroetker/go-highway/hwy"
	"golang.org/x/sys/cpu"
)

// Features describes the vector unit the lane sweep will run on.
type Features struct {
	Arch     string
	Dispatch string // hwy dispatch target
	Kernel   string // lane kernel Vectorized runs
	Width    int
	Lanes    int
	CPU      []string
}

// Detect reports the active dispatch target and the CPU flags relevant to it.
func Detect() Features {
	f := Features{
		Arch:     runtime.GOARCH,
		Dispatch: dispatchName(),
		Kernel:   KernelName(),
		Width:    hwy.CurrentWidth(),
		Lanes:    Lanes(),
	}

	switch runtime.GOARCH {
	case "amd64":
		flags := []struct {
			name string
			ok   bool
		}{
			{"sse4.1", cpu.X86.HasSSE41},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		}
		for _, fl := range flags {
			if fl.ok {
				f.CPU = append(f.CPU, fl.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			f.CPU = append(f.CPU, "asimd")
		}
		if cpu.ARM64.HasSVE {
			f.CPU = append(f.CPU, "sve")
		}
	}
	return f
}

// dispatchName falls back to the dispatch level, since hwy leaves the target
// name empty when it runs in scalar mode.
func dispatchName() string {
	if name := hwy.CurrentName(); name != "" {
		return name
	}
	return hwy.CurrentLevel().String()
}

func (f Features) String() string {
	cpuFlags := "none"
	if len(f.CPU) > 0 {
		cpuFlags = strings.Join(f.CPU, ",")
	}
	return fmt.Sprintf("arch=%s dispatch=%s kernel=%s width=%dB lanes=%d cpu=%s",
		f.Arch, f.Dispatch, f.Kernel, f.Width, f.Lanes, cpuFlags)
}
