// Package event is the typed event model the analysis consumes: JFR event
// types, a field bag read through typed accessors, per-type schemas and the
// task (thread) identity events refer to.
package event

// JFR event type names understood by the analysis.
const (
	ExecutionSample        = "jdk.ExecutionSample"
	WallClockSample        = "profiler.WallClockSample"
	NativeMethodSample     = "jdk.NativeMethodSample"
	AllocationInNewTLAB    = "jdk.ObjectAllocationInNewTLAB"
	AllocationOutsideTLAB  = "jdk.ObjectAllocationOutsideTLAB"
	FileRead               = "jdk.FileRead"
	FileWrite              = "jdk.FileWrite"
	FileForce              = "jdk.FileForce"
	SocketRead             = "jdk.SocketRead"
	SocketWrite            = "jdk.SocketWrite"
	SocketConnect          = "jdk.SocketConnect"
	MonitorEnter           = "jdk.JavaMonitorEnter"
	MonitorWait            = "jdk.JavaMonitorWait"
	ThreadPark             = "jdk.ThreadPark"
	ThreadSleep            = "jdk.ThreadSleep"
	ClassLoad              = "jdk.ClassLoad"
	ActiveSetting          = "jdk.ActiveSetting"
	CPUInformation         = "jdk.CPUInformation"
	ContainerConfiguration = "jdk.ContainerConfiguration"
	IntFlag                = "jdk.IntFlag"
	UnsignedIntFlag        = "jdk.UnsignedIntFlag"
	GCConfiguration        = "jdk.GCConfiguration"
	GarbageCollection      = "jdk.GarbageCollection"
	ThreadCPULoad          = "jdk.ThreadCPULoad"
	ThreadStart            = "jdk.ThreadStart"
	ThreadEnd              = "jdk.ThreadEnd"
	ExecuteVMOperation     = "jdk.ExecuteVMOperation"
)

// Kind is the closed set of event kinds the analysis dispatches on.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindExecutionSample
	KindWallClockSample
	KindNativeMethodSample
	KindAllocationInNewTLAB
	KindAllocationOutsideTLAB
	KindFileRead
	KindFileWrite
	KindFileForce
	KindSocketRead
	KindSocketWrite
	KindSocketConnect
	KindMonitorEnter
	KindMonitorWait
	KindThreadPark
	KindThreadSleep
	KindClassLoad
	KindActiveSetting
	KindCPUInformation
	KindContainerConfiguration
	KindIntFlag
	KindUnsignedIntFlag
	KindGCConfiguration
	KindGarbageCollection
	KindThreadCPULoad
	KindThreadStart
	KindThreadEnd
	KindExecuteVMOperation

	// NumKinds is one past the last valid kind.
	NumKinds
)

var kindNames = [NumKinds]string{
	KindUnknown:                "",
	KindExecutionSample:        ExecutionSample,
	KindWallClockSample:        WallClockSample,
	KindNativeMethodSample:     NativeMethodSample,
	KindAllocationInNewTLAB:    AllocationInNewTLAB,
	KindAllocationOutsideTLAB:  AllocationOutsideTLAB,
	KindFileRead:               FileRead,
	KindFileWrite:              FileWrite,
	KindFileForce:              FileForce,
	KindSocketRead:             SocketRead,
	KindSocketWrite:            SocketWrite,
	KindSocketConnect:          SocketConnect,
	KindMonitorEnter:           MonitorEnter,
	KindMonitorWait:            MonitorWait,
	KindThreadPark:             ThreadPark,
	KindThreadSleep:            ThreadSleep,
	KindClassLoad:              ClassLoad,
	KindActiveSetting:          ActiveSetting,
	KindCPUInformation:         CPUInformation,
	KindContainerConfiguration: ContainerConfiguration,
	KindIntFlag:                IntFlag,
	KindUnsignedIntFlag:        UnsignedIntFlag,
	KindGCConfiguration:        GCConfiguration,
	KindGarbageCollection:      GarbageCollection,
	KindThreadCPULoad:          ThreadCPULoad,
	KindThreadStart:            ThreadStart,
	KindThreadEnd:              ThreadEnd,
	KindExecuteVMOperation:     ExecuteVMOperation,
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, NumKinds)
	for k := KindUnknown + 1; k < NumKinds; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// KindOf maps a JFR type name to its kind. Unknown names map to KindUnknown.
func KindOf(name string) Kind {
	return kindByName[name]
}

func (k Kind) String() string {
	if k >= NumKinds || k == KindUnknown {
		return "unknown"
	}
	return kindNames[k]
}

// Type is a resolved event type: the numeric id assigned by the recording,
// its name, and the kind derived from the name.
type Type struct {
	ID   int64
	Name string
	Kind Kind
}

// NewType builds a Type, deriving the kind from the name.
func NewType(id int64, name string) Type {
	return Type{ID: id, Name: name, Kind: KindOf(name)}
}
