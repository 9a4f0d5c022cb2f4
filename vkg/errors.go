package vkg

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/celer/vk2d"
	vk "github.com/vulkan-go/vulkan"
)

// NewError converts a failing vk.Result into an error. Results the renderer
// reacts to wrap the matching vk2d sentinel so callers can use errors.Is. The
// calling frame is attached to every error.
func NewError(res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	where := callerFrame(2)
	if sentinel := sentinelFor(res); sentinel != nil {
		return fmt.Errorf("%w: vulkan result %d at %s", sentinel, res, where)
	}
	err := vk.Error(res)
	if err == nil {
		return nil
	}
	return fmt.Errorf("vulkan error: %w (%d) at %s", err, res, where)
}

// IsError reports whether res is anything other than vk.Success.
func IsError(res vk.Result) bool {
	return res != vk.Success
}

func sentinelFor(res vk.Result) error {
	switch res {
	case vk.ErrorOutOfDate:
		return vk2d.ErrSurfaceOutOfDate
	case vk.ErrorSurfaceLost, vk.ErrorDeviceLost:
		return vk2d.ErrSurfaceLost
	case vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfHostMemory,
		vk.ErrorOutOfPoolMemory, vk.ErrorFragmentedPool, vk.ErrorTooManyObjects:
		return vk2d.ErrResourceExhausted
	case vk.Timeout:
		return vk2d.ErrFenceTimeout
	}
	return nil
}

func callerFrame(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	name := "?"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = filepath.Base(fn.Name())
	}
	return fmt.Sprintf("%s (%s:%d)", name, filepath.Base(file), line)
}
