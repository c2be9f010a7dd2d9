package libpython

import "fmt"

// ToolchainFactory manages the registration and selection of toolchains.
//
// The factory maintains a registry of Toolchain implementations and picks
// the one that drives both passes of a build.
//
// # Usage
//
// Create a factory with the standard toolchains:
//
//	factory := libpython.NewToolchainFactory()
//
// Or put a custom toolchain in front of them:
//
//	factory := &libpython.ToolchainFactory{}
//	factory.Register(libpython.NewZigToolchain("*-linux-musl"))
//	factory.Register(&libpython.MSVCToolchain{})
//	factory.Register(&libpython.GNUToolchain{})
//
// # Toolchain Selection
//
// Toolchains are asked in registration order; the first whose CanTarget()
// returns true is used.
//
// # Thread Safety
//
// ToolchainFactory is NOT thread-safe for registration.
// Register all toolchains before concurrent use.
type ToolchainFactory struct {
	toolchains []Toolchain
}

// NewToolchainFactory creates a factory with MSVC and GNU registered.
func NewToolchainFactory() *ToolchainFactory {
	factory := &ToolchainFactory{}

	factory.Register(&MSVCToolchain{})
	factory.Register(&GNUToolchain{})

	return factory
}

// Register adds a toolchain to the factory.
//
// Not thread-safe. Register all toolchains before concurrent use.
func (f *ToolchainFactory) Register(toolchain Toolchain) {
	f.toolchains = append(f.toolchains, toolchain)
}

// ToolchainFor returns the first registered toolchain that can target p.
func (f *ToolchainFactory) ToolchainFor(p Platform) (Toolchain, error) {
	for _, toolchain := range f.toolchains {
		if toolchain.CanTarget(p) {
			return toolchain, nil
		}
	}
	return nil, fmt.Errorf("no toolchain found for target %s", p.Triple)
}

// ListToolchains returns a copy of all registered toolchains.
func (f *ToolchainFactory) ListToolchains() []Toolchain {
	return append([]Toolchain{}, f.toolchains...)
}
