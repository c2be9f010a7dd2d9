package libpython

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeSDK creates <dev>/Platforms/<platform>.platform/Developer/SDKs/<name>.sdk.
func writeFakeSDK(t *testing.T, dev, platform, name, version, minDeployment string) string {
	t.Helper()

	dir := filepath.Join(dev, "Platforms", platform+".platform", "Developer", "SDKs", name+".sdk")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	settings := fmt.Sprintf(`{
  "CanonicalName": %q,
  "Version": %q,
  "SupportedTargets": {
    "macosx": {"MinimumDeploymentTarget": %q, "MaximumDeploymentTarget": "99.0"}
  }
}`, "macosx"+version, version, minDeployment)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SDKSettings.json"), []byte(settings), 0o644))
	return dir
}

func TestSelectAppleSDK(t *testing.T) {
	dev := t.TempDir()
	old := writeFakeSDK(t, dev, "MacOSX", "MacOSX11.3", "11.3", "10.9")
	newest := writeFakeSDK(t, dev, "MacOSX", "MacOSX13.1", "13.1", "10.13")
	writeFakeSDK(t, dev, "MacOSX", "MacOSX10.15", "10.15", "10.9")
	writeFakeSDK(t, dev, "iPhoneOS", "iPhoneOS17.0", "17.0", "12.0")

	// An SDK without settings is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(dev, "Platforms", "MacOSX.platform", "Developer", "SDKs", "MacOSX99.sdk"), 0o755))

	testCases := []struct {
		name    string
		info    AppleSDKInfo
		want    string
		wantErr string
	}{
		{
			name: "newest satisfying version",
			info: AppleSDKInfo{Platform: "macosx", Version: "11.0"},
			want: newest,
		},
		{
			name: "deployment target below newest minimum",
			info: AppleSDKInfo{Platform: "macosx", Version: "11.0", DeploymentTarget: "10.10"},
			want: old,
		},
		{
			name:    "version too new",
			info:    AppleSDKInfo{Platform: "macosx", Version: "14.0"},
			wantErr: "no macosx SDK >= 14.0 found",
		},
		{
			name:    "unknown platform",
			info:    AppleSDKInfo{Platform: "visionos", Version: "1.0"},
			wantErr: "unknown Apple SDK platform",
		},
		{
			name:    "invalid version",
			info:    AppleSDKInfo{Platform: "macosx", Version: "eleven"},
			wantErr: "invalid Apple SDK version",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sdk, err := selectAppleSDK([]string{dev}, &tc.info)
			if tc.wantErr != "" {
				require.Error(t, err)
				var cfgErr *ConfigError
				assert.True(t, errors.As(err, &cfgErr))
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, sdk.Path)
		})
	}
}

func TestResolveAppleSDK(t *testing.T) {
	clearToolEnv(t)
	logger, _ := newTestLogger()

	t.Run("nil info", func(t *testing.T) {
		_, err := ResolveAppleSDK(context.Background(), logger, nil)
		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("SDKROOT", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("SDKROOT", root)

		sdk, err := ResolveAppleSDK(context.Background(), logger, &AppleSDKInfo{Platform: "macosx", Version: "11.0"})
		require.NoError(t, err)
		assert.Equal(t, root, sdk.Path)
	})

	t.Run("DEVELOPER_DIR", func(t *testing.T) {
		installFakeRunner(t, toolchainHandler)
		dev := t.TempDir()
		want := writeFakeSDK(t, dev, "MacOSX", "MacOSX99.0", "99.0", "10.9")
		t.Setenv("SDKROOT", filepath.Join(dev, "missing"))
		t.Setenv("DEVELOPER_DIR", dev)

		sdk, err := ResolveAppleSDK(context.Background(), logger, &AppleSDKInfo{Platform: "macosx", Version: "11.0"})
		require.NoError(t, err)
		assert.Equal(t, want, sdk.Path)
		assert.Equal(t, "99.0.0", sdk.Version.String())
	})
}
