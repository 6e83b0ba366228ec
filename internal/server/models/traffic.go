package models

// TrafficSample is one row of the traffic store: bytes moved by one IP
// during one accounting period.
type TrafficSample struct {
	TimeTag int64
	IP      string
	Input   int64
	Output  int64
}

// Overall is input plus output.
func (s TrafficSample) Overall() int64 {
	return s.Input + s.Output
}

// TrafficSum is the traffic of several IPs folded into one period.
type TrafficSum struct {
	TimeTag int64
	Input   int64
	Output  int64
}
