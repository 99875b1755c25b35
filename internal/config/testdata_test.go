package config

// validYAML is a complete single-master environment used across tests.
const validYAML = `
cluster: lab
masters:
  count: 1
  vmid_start: 120
workers:
  count: 2
  vmid_start: 130
  resources:
    memory_mib: 16384
network:
  ipv4_prefix: "10.10.0."
  ipv4_gateway: "10.10.0.1"
  ipv6_prefix: "fd00:10:10::"
  host_base: 20
  dns: ["1.1.1.1"]
proxmox:
  host: 192.168.1.10
  node: pve1
  template_vmid: 9000
  storage: local-lvm
ssh:
  private_key_path: ~/.ssh/id_ed25519
addons:
  metallb:
    enabled: true
    pools:
      - name: default
        addresses: ["10.10.0.200-10.10.0.220"]
  cert_manager:
    enabled: true
    email: ops@example.com
  traefik:
    enabled: true
  argocd:
    enabled: true
probes:
  interval: 5s
`

func validConfig() *EnvironmentConfig {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		panic(err)
	}
	return cfg
}
