package model

import (
	"fmt"
	"strings"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{
	PlatformFreelancer,
	PlatformRemoteOK,
	PlatformWeWorkRemotely,
	PlatformUpwork,
}

// ParsePlatform resolves a case-insensitive platform name such as
// "remoteok" or "WeWorkRemotely".
func ParsePlatform(name string) (Platform, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Platforms {
		if strings.ToLower(string(p)) == n {
			return p, nil
		}
	}
	switch n {
	case "wwr":
		return PlatformWeWorkRemotely, nil
	}
	return "", fmt.Errorf("unknown platform %q", name)
}
