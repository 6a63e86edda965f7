package system

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrMissingBinary means ffmpeg or ffprobe is not on PATH.
var ErrMissingBinary = errors.New("binary not found")

// VideoExtensions are the recording formats FindLatestVideo looks for.
var VideoExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".avi", ".m4v"}

// decoderMemory is a rough per-process budget for one ffmpeg seek+decode.
const decoderMemory = 256 << 20

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read the open file limit: %v", err)
		return
	}

	if rLimit.Cur >= 2048 {
		return
	}
	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not raise the open file limit: %v", err)
	}
}

// CheckBinary resolves name on PATH.
func CheckBinary(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingBinary, name)
	}
	return p, nil
}

// ProbeDuration asks ffprobe for the container duration in seconds.
func ProbeDuration(ctx context.Context, ffprobe, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobe, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrMissingBinary, ffprobe)
		}
		return 0, fmt.Errorf("ffprobe %s: %v: %s", filepath.Base(path), err, strings.TrimSpace(string(out)))
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration); err != nil {
		return 0, fmt.Errorf("ffprobe %s: unexpected output %q", filepath.Base(path), strings.TrimSpace(string(out)))
	}

	return duration, nil
}

// FindLatestVideo returns the most recently modified recording in dir.
func FindLatestVideo(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), VideoExtensions) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no recordings found in %s", dir)
	}

	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DefaultWorkers sizes the extraction pool: one decoder per physical core,
// fewer when available memory cannot hold that many decoders.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		byMem := int(vm.Available / decoderMemory)
		if byMem < n {
			n = byMem
		}
	}

	if n < 1 {
		n = 1
	}
	if n > 8 {
		n = 8
	}
	return n
}
