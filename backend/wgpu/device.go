//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gfx"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var (
	errNoAdapter   = errors.New("wgpu: no GPU adapters found")
	errNoHALDevice = errors.New("wgpu: provider does not expose HAL types")
)

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g *GPUInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

func gpuInfo(info gputypes.AdapterInfo) GPUInfo {
	return GPUInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
		Driver:     info.Driver,
	}
}

// logGPUInfo logs information about the selected GPU.
func logGPUInfo(info *GPUInfo) {
	gfx.Logger().Info("wgpu: GPU", "name", info.Name, "type", info.DeviceType.String(), "backend", info.Backend.String())
	if info.Driver != "" {
		gfx.Logger().Debug("wgpu: driver", "driver", info.Driver)
	}
}

// openBackend creates an instance of the given HAL backend and opens a
// device on its best adapter. Discrete and integrated GPUs are preferred.
func openBackend(b hal.Backend) (hal.Instance, hal.OpenDevice, GPUInfo, error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, hal.OpenDevice{}, GPUInfo{}, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, hal.OpenDevice{}, GPUInfo{}, errNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	dev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, hal.OpenDevice{}, GPUInfo{}, fmt.Errorf("wgpu: open device: %w", err)
	}
	return instance, dev, gpuInfo(selected.Info), nil
}

// openDefault opens a Vulkan device, or the noop device when Vulkan is
// unavailable and fallback is allowed.
func openDefault(fallback bool) (hal.Instance, hal.OpenDevice, GPUInfo, error) {
	var vkErr error
	if b, ok := hal.GetBackend(gputypes.BackendVulkan); ok {
		instance, dev, info, err := openBackend(b)
		if err == nil {
			return instance, dev, info, nil
		}
		vkErr = err
	} else {
		vkErr = errors.New("wgpu: vulkan backend not available")
	}
	if !fallback {
		return nil, hal.OpenDevice{}, GPUInfo{}, vkErr
	}
	gfx.Logger().Warn("wgpu: using noop device", "err", vkErr)
	return openBackend(noop.API{})
}

// halDevice extracts the HAL device and queue of a shared provider. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func halDevice(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, errNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is not hal.Device", errNoHALDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: HalQueue is not hal.Queue", errNoHALDevice)
	}
	return device, queue, nil
}
