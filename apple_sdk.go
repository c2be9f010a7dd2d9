package libpython

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"
)

// sdkPlatformDirs maps SDK platform names to their directory prefix.
var sdkPlatformDirs = map[string]string{
	"macosx":           "MacOSX",
	"iphoneos":         "iPhoneOS",
	"iphonesimulator":  "iPhoneSimulator",
	"appletvos":        "AppleTVOS",
	"appletvsimulator": "AppleTVSimulator",
	"watchos":          "WatchOS",
	"watchsimulator":   "WatchSimulator",
}

// AppleSDK is a concrete SDK directory on disk.
type AppleSDK struct {
	Path    string
	Name    string
	Version *semver.Version
}

type sdkSupportedTarget struct {
	MinimumDeploymentTarget string `json:"MinimumDeploymentTarget"`
	MaximumDeploymentTarget string `json:"MaximumDeploymentTarget"`
}

// sdkSettings is the subset of SDKSettings.json we care about.
type sdkSettings struct {
	CanonicalName    string                        `json:"CanonicalName"`
	Version          string                        `json:"Version"`
	SupportedTargets map[string]sdkSupportedTarget `json:"SupportedTargets"`
}

// ResolveAppleSDK finds the SDK to pass to the compiler via -isysroot.
//
// SDKROOT wins when it points at an existing directory. Otherwise the known
// developer directories are searched and the newest SDK that is at least
// info.Version and supports info.DeploymentTarget is returned.
func ResolveAppleSDK(ctx context.Context, logger *log.Entry, info *AppleSDKInfo) (*AppleSDK, error) {
	if info == nil {
		return nil, &ConfigError{Reason: "Apple SDK info should be defined when targeting Apple platforms"}
	}

	if root := os.Getenv("SDKROOT"); root != "" {
		if st, err := os.Stat(root); err == nil && st.IsDir() {
			logger.WithField("sdk", root).Info("using Apple SDK from SDKROOT")
			return &AppleSDK{Path: root, Name: filepath.Base(root)}, nil
		}
		logger.WithField("sdk", root).Warn("SDKROOT does not point at a directory, ignoring")
	}

	sdk, err := selectAppleSDK(appleDeveloperDirs(ctx), info)
	if err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{"sdk": sdk.Path, "version": sdk.Version}).Info("resolved Apple SDK")
	return sdk, nil
}

// appleDeveloperDirs lists candidate developer directories, most specific first.
func appleDeveloperDirs(ctx context.Context) []string {
	var dirs []string
	if d := os.Getenv("DEVELOPER_DIR"); d != "" {
		dirs = append(dirs, d)
	}
	if out, err := execCapture(ctx, nil, "xcode-select", "-p"); err == nil {
		if d := strings.TrimSpace(out.Stdout); d != "" {
			dirs = append(dirs, d)
		}
	}
	dirs = append(dirs,
		"/Applications/Xcode.app/Contents/Developer",
		"/Library/Developer/CommandLineTools",
	)
	return uniqueStrings(dirs)
}

// selectAppleSDK picks the newest SDK satisfying info from the developer dirs.
func selectAppleSDK(developerDirs []string, info *AppleSDKInfo) (*AppleSDK, error) {
	prefix, ok := sdkPlatformDirs[strings.ToLower(info.Platform)]
	if !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown Apple SDK platform %q", info.Platform)}
	}

	minVersion, err := semver.NewVersion(info.Version)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid Apple SDK version %q", info.Version), Err: err}
	}

	var deploymentTarget *semver.Version
	if info.DeploymentTarget != "" {
		deploymentTarget, err = semver.NewVersion(info.DeploymentTarget)
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("invalid deployment target %q", info.DeploymentTarget), Err: err}
		}
	}

	matcher := glob.MustCompile(prefix + "*.sdk")

	var best *AppleSDK
	for _, dev := range developerDirs {
		sdkDirs := []string{
			filepath.Join(dev, "Platforms", prefix+".platform", "Developer", "SDKs"),
			filepath.Join(dev, "SDKs"),
		}
		for _, sdkDir := range sdkDirs {
			entries, err := os.ReadDir(sdkDir)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if !matcher.Match(entry.Name()) {
					continue
				}
				sdk, settings, err := loadAppleSDK(filepath.Join(sdkDir, entry.Name()))
				if err != nil {
					continue
				}
				if sdk.Version.LessThan(minVersion) {
					continue
				}
				if !supportsDeploymentTarget(settings, strings.ToLower(info.Platform), deploymentTarget) {
					continue
				}
				if best == nil || sdk.Version.GreaterThan(best.Version) {
					best = sdk
				}
			}
		}
	}

	if best == nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("no %s SDK >= %s found in %s", info.Platform, info.Version, strings.Join(developerDirs, ", "))}
	}
	return best, nil
}

func loadAppleSDK(path string) (*AppleSDK, *sdkSettings, error) {
	data, err := os.ReadFile(filepath.Join(path, "SDKSettings.json"))
	if err != nil {
		return nil, nil, err
	}

	var settings sdkSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, nil, fmt.Errorf("parsing SDKSettings.json in %s: %w", path, err)
	}

	version, err := semver.NewVersion(settings.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid SDK version %q in %s: %w", settings.Version, path, err)
	}

	name := settings.CanonicalName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".sdk")
	}
	return &AppleSDK{Path: path, Name: name, Version: version}, &settings, nil
}

func supportsDeploymentTarget(settings *sdkSettings, platform string, target *semver.Version) bool {
	if target == nil {
		return true
	}
	supported, ok := settings.SupportedTargets[platform]
	if !ok {
		return true
	}
	if supported.MinimumDeploymentTarget != "" {
		if lo, err := semver.NewVersion(supported.MinimumDeploymentTarget); err == nil && target.LessThan(lo) {
			return false
		}
	}
	if supported.MaximumDeploymentTarget != "" {
		if hi, err := semver.NewVersion(supported.MaximumDeploymentTarget); err == nil && target.GreaterThan(hi) {
			return false
		}
	}
	return true
}
