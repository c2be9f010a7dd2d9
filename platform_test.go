package libpython

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlatform(t *testing.T) {
	testCases := []struct {
		triple    string
		windows   bool
		msvc      bool
		apple     bool
		macos     bool
		libpython string
		embedded  string
		objSuffix string
	}{
		{"x86_64-unknown-linux-gnu", false, false, false, false, "libpythonXY.a", "libpyembeddedconfig.a", ".o"},
		{"x86_64-pc-windows-msvc", true, true, false, false, "pythonXY.lib", "pyembeddedconfig.lib", ".obj"},
		{"x86_64-pc-windows-gnu", true, false, false, false, "pythonXY.lib", "pyembeddedconfig.lib", ".o"},
		{"aarch64-apple-darwin", false, false, true, true, "libpythonXY.a", "libpyembeddedconfig.a", ".o"},
		{"aarch64-apple-ios", false, false, true, false, "libpythonXY.a", "libpyembeddedconfig.a", ".o"},
	}

	for _, tc := range testCases {
		t.Run(tc.triple, func(t *testing.T) {
			p := ResolvePlatform(tc.triple)

			assert.Equal(t, tc.windows, p.Windows, "Windows")
			assert.Equal(t, tc.msvc, p.MSVC, "MSVC")
			assert.Equal(t, tc.apple, p.Apple, "Apple")
			assert.Equal(t, tc.macos, p.MacOS, "MacOS")
			assert.Equal(t, tc.libpython, p.LibpythonFileName())
			assert.Equal(t, tc.embedded, p.EmbeddedConfigFileName())
			assert.Equal(t, tc.objSuffix, p.ObjectSuffix())
		})
	}
}

func TestPlatformCross(t *testing.T) {
	p := ResolvePlatform("aarch64-unknown-linux-gnu")

	assert.True(t, p.Cross("x86_64-unknown-linux-gnu"))
	assert.False(t, p.Cross("aarch64-unknown-linux-gnu"))
	assert.False(t, p.Cross(""))
}

func TestEnvForTarget(t *testing.T) {
	clearToolEnv(t)
	target := "aarch64-unknown-linux-gnu"

	assert.Empty(t, envForTarget("CC", target))

	t.Setenv("CC", "gcc")
	assert.Equal(t, "gcc", envForTarget("CC", target))

	t.Setenv("TARGET_CC", "target-gcc")
	assert.Equal(t, "target-gcc", envForTarget("CC", target))

	t.Setenv("CC_aarch64_unknown_linux_gnu", "underscored-gcc")
	assert.Equal(t, "underscored-gcc", envForTarget("CC", target))

	t.Setenv("CC_aarch64-unknown-linux-gnu", "exact-gcc")
	assert.Equal(t, "exact-gcc", envForTarget("CC", target))
}

func TestPlatformContextValidate(t *testing.T) {
	testCases := []struct {
		name    string
		pc      PlatformContext
		wantErr string
	}{
		{
			name: "linux",
			pc:   PlatformContext{HostTriple: "x86_64-unknown-linux-gnu", TargetTriple: "x86_64-unknown-linux-gnu"},
		},
		{
			name:    "missing target",
			pc:      PlatformContext{HostTriple: "x86_64-unknown-linux-gnu"},
			wantErr: "target triple is required",
		},
		{
			name:    "missing host",
			pc:      PlatformContext{TargetTriple: "x86_64-unknown-linux-gnu"},
			wantErr: "host triple is required",
		},
		{
			name:    "apple without sdk",
			pc:      PlatformContext{HostTriple: "aarch64-apple-darwin", TargetTriple: "aarch64-apple-darwin"},
			wantErr: "Apple SDK info should be defined when targeting Apple platforms",
		},
		{
			name: "apple with sdk",
			pc: PlatformContext{
				HostTriple:   "aarch64-apple-darwin",
				TargetTriple: "aarch64-apple-darwin",
				AppleSDK:     &AppleSDKInfo{Platform: "macosx", Version: "11.0"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.pc.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPlatformContextApplyDefaults(t *testing.T) {
	t.Setenv("HOST", "x86_64-unknown-linux-gnu")
	t.Setenv("TARGET", "aarch64-unknown-linux-gnu")
	t.Setenv("OPT_LEVEL", "2")

	pc := PlatformContext{TargetTriple: "x86_64-pc-windows-msvc"}
	require.NoError(t, pc.ApplyDefaults(PlatformContextFromEnv()))

	assert.Equal(t, "x86_64-unknown-linux-gnu", pc.HostTriple)
	assert.Equal(t, "x86_64-pc-windows-msvc", pc.TargetTriple, "explicit values win")
	assert.Equal(t, "2", pc.OptLevel)
}
