package machine

type StateChangeEvent struct {
	Machine  *Machine
	State    State
	Previous State
}

// ProgressEvent reports build progress in lines.
type ProgressEvent struct {
	Machine *Machine
	Lines   int
	Total   int
}

type ToolStatusEvent struct {
	Machine *Machine
	Tool    ToolModel
}

// A Listener is notified of machine events. Callbacks run on the machine's
// event goroutine and must not block.
type Listener interface {
	MachineStateChanged(StateChangeEvent)
	MachineProgress(ProgressEvent)
	ToolStatusChanged(ToolStatusEvent)
}
