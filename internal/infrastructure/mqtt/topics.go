package mqtt

// Topics builds the monitor's topic names from its identity name.
//
// The command and status topics hang off the instance name so several
// monitors can share a broker; checkup and motion topics are shared
// infrastructure and come straight from configuration.
type Topics struct {
	Name string
}

// Command returns the inbound remote-control topic, e.g. "secmon00/cmd".
func (t Topics) Command() string {
	return t.Name + "/cmd"
}

// Status returns the online/offline status topic, e.g. "secmon00/status".
// The Last Will and Testament is published here.
func (t Topics) Status() string {
	return t.Name + "/status"
}
