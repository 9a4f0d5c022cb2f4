package vkg

const (
	DefaultMaxDraws    = 1024
	DefaultStagingSize = 16 << 20
)

// Option configures a GraphicsApp before it is initialized.
type Option func(*GraphicsApp)

// WithValidation enables the Khronos validation layer and routes its reports
// to vk2d.Logger. It is skipped with a warning when the layer is missing.
func WithValidation(enabled bool) Option {
	return func(p *GraphicsApp) { p.validation = enabled }
}

// WithApplication sets the application name and version reported to the
// driver.
func WithApplication(name string, version Version) Option {
	return func(p *GraphicsApp) {
		p.App.Name = name
		p.App.Version = version
	}
}

// WithDeviceIndex forces a physical device by enumeration index. A negative
// index picks the first discrete GPU, falling back to the first device.
func WithDeviceIndex(index int) Option {
	return func(p *GraphicsApp) { p.deviceIndex = index }
}

// WithMaxDraws bounds how many draws a single frame may issue. Each draw
// takes one descriptor set from the frame's arena.
func WithMaxDraws(n int) Option {
	return func(p *GraphicsApp) {
		if n > 0 {
			p.maxDraws = n
		}
	}
}

// WithStagingSize sets the upload pool size, which caps the largest texture.
func WithStagingSize(size uint64) Option {
	return func(p *GraphicsApp) {
		if size > 0 {
			p.stagingSize = size
		}
	}
}
