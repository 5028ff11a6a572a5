// Package update checks that a gateway speaks a protocol version this
// CLI understands.
package update

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// MinGatewayVersion is the oldest gateway release with the
// parameterized execute endpoint.
const MinGatewayVersion = "1.0.0"

// Compatibility is the outcome of comparing CLI and gateway versions.
type Compatibility struct {
	Client     string
	Gateway    string
	Compatible bool
	Reason     string
}

// CheckCompatibility compares the CLI version with the version a gateway
// reports. The gateway must be at least MinGatewayVersion and share the
// CLI's major version. Unversioned gateways and development builds are
// accepted with a reason attached.
func CheckCompatibility(clientVersion, gatewayVersion string) (Compatibility, error) {
	c := Compatibility{Client: clientVersion, Gateway: gatewayVersion, Compatible: true}

	if gatewayVersion == "" || gatewayVersion == "dev" {
		c.Reason = "gateway does not report a release version"
		return c, nil
	}

	gw, err := version.NewVersion(gatewayVersion)
	if err != nil {
		return c, fmt.Errorf("invalid gateway version %q: %w", gatewayVersion, err)
	}

	minimum, err := version.NewConstraint(">= " + MinGatewayVersion)
	if err != nil {
		return c, err
	}
	if !minimum.Check(gw) {
		c.Compatible = false
		c.Reason = fmt.Sprintf("gateway %s is older than %s", gw, MinGatewayVersion)
		return c, nil
	}

	if clientVersion == "" || clientVersion == "dev" {
		return c, nil
	}
	cli, err := version.NewVersion(clientVersion)
	if err != nil {
		return c, fmt.Errorf("invalid version format: %w", err)
	}

	major := cli.Segments()[0]
	sameMajor, err := version.NewConstraint(fmt.Sprintf(">= %d.0.0, < %d.0.0", major, major+1))
	if err != nil {
		return c, err
	}
	if !sameMajor.Check(gw) {
		c.Compatible = false
		c.Reason = fmt.Sprintf("gateway %s and client %s differ in major version", gw, cli)
	}
	return c, nil
}
