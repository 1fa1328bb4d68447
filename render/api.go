// Package render describes GPU resources and draw submission independently of
// the native graphics API that backs them.
package render

type API uint8

const (
	APIUnknown API = iota
	APIVulkan
)

func (a API) String() string {
	switch a {
	case APIVulkan:
		return "Vulkan"
	default:
		return "Unknown"
	}
}

// Backend is the capability every native implementation exposes to callers
// that do not care which API is underneath. Only Vulkan is compiled in.
type Backend interface {
	API() API
	Name() string
	WaitUntilIdle() error
	Destroy()
}
