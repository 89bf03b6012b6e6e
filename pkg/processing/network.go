package processing

// NetworkConfig controls network isolation and traffic encryption for a
// processing job's containers.
type NetworkConfig struct {
	EnableNetworkIsolation       bool
	EncryptInterContainerTraffic bool
	SecurityGroupIDs             []string
	Subnets                      []string
}

type NetworkRequest struct {
	EnableNetworkIsolation       bool       `json:"EnableNetworkIsolation"`
	EncryptInterContainerTraffic bool       `json:"EnableInterContainerTrafficEncryption"`
	VPCConfig                    *VPCConfig `json:"VpcConfig,omitempty"`
}

type VPCConfig struct {
	SecurityGroupIDs []string `json:"SecurityGroupIds"`
	Subnets          []string `json:"Subnets"`
}

// ToRequest serializes the network configuration. The VPC block is omitted
// when neither security groups nor subnets are set.
func (n *NetworkConfig) ToRequest() *NetworkRequest {
	req := &NetworkRequest{
		EnableNetworkIsolation:       n.EnableNetworkIsolation,
		EncryptInterContainerTraffic: n.EncryptInterContainerTraffic,
	}
	if len(n.SecurityGroupIDs) > 0 || len(n.Subnets) > 0 {
		req.VPCConfig = &VPCConfig{
			SecurityGroupIDs: n.SecurityGroupIDs,
			Subnets:          n.Subnets,
		}
	}
	return req
}
