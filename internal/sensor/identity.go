package sensor

import "strings"

// AdapterIdentity is the static description of one graphics adapter as
// reported by the identity query. Empty fields were not reported.
type AdapterIdentity struct {
	Name          string `json:"name"`
	Memory        string `json:"memory"`
	DriverVersion string `json:"driver_version"`
	Processor     string `json:"processor"`
	Status        string `json:"status"`
}

// vendorMap maps adapter name prefixes to vendor names.
var vendorMap = []struct {
	prefix string
	name   string
}{
	{"nvidia", "NVIDIA"},
	{"geforce", "NVIDIA"},
	{"quadro", "NVIDIA"},
	{"tesla", "NVIDIA"},
	{"amd", "AMD"},
	{"radeon", "AMD"},
	{"ati ", "AMD"},
	{"intel", "Intel"},
	{"microsoft", "Microsoft"},
	{"vmware", "VMware"},
	{"virtualbox", "VirtualBox"},
	{"parsec", "Virtual"},
	{"citrix", "Virtual"},
}

// Vendor returns a vendor name for an adapter name, or "GPU" when the
// name is not recognized.
func Vendor(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range vendorMap {
		if strings.HasPrefix(lower, entry.prefix) {
			return entry.name
		}
	}
	return "GPU"
}
