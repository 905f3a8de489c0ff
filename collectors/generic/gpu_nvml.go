//go:build linux && cgo

package generic

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"gitlab.com/tinyland/lab/boardtop/collectors"
)

// nvmlDevice adapts an NVML device handle to Device.
type nvmlDevice struct {
	handle nvml.Device
}

func openNVML() (Device, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, collectors.Unavailable(nvmlError("init", ret))
	}
	handle, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		_ = nvml.Shutdown()
		return nil, collectors.Unavailable(nvmlError("device 0", ret))
	}
	return &nvmlDevice{handle: handle}, nil
}

func (d *nvmlDevice) Name() (string, error) {
	name, ret := d.handle.GetName()
	if ret != nvml.SUCCESS {
		return "", nvmlError("name", ret)
	}
	return name, nil
}

func (d *nvmlDevice) Utilization() (uint32, error) {
	util, ret := d.handle.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return 0, nvmlError("utilization", ret)
	}
	return util.Gpu, nil
}

func (d *nvmlDevice) Memory() (used, total uint64, err error) {
	info, ret := d.handle.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return 0, 0, nvmlError("memory info", ret)
	}
	return info.Used, info.Total, nil
}

func (d *nvmlDevice) Close() error {
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return nvmlError("shutdown", ret)
	}
	return nil
}

func nvmlError(op string, ret nvml.Return) error {
	return fmt.Errorf("nvml %s: %s", op, nvml.ErrorString(ret))
}
