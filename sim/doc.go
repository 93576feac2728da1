// Package sim provides the core discrete-time engine for the OS simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - process.go: Process lifecycle (NEW → READY → RUNNING → WAITING/TERMINATED) and state machine
//   - partition.go: Fixed partition table and best-fit placement
//   - simulator.go: The tick loop and its fixed phase order
//
// # Tick Order
//
// Every tick runs the same phases, in this order:
//  1. admit arrivals (best-fit, or memory-wait when nothing fits)
//  2. retry memory-wait, front to back
//  3. count down I/O, completed I/O goes to the ready tail
//  4. RR only: decrement the running slice, preempt when it reaches 0
//  5. dispatch when the CPU is idle (FCFS head, EP lowest priority, RR head)
//  6. execute one CPU tick (terminate, or block for I/O)
//  7. age ready and memory-wait processes
//
// Then the clock advances by one.
//
// # Architecture
//
// The sim package owns the engine state; related code lives in sub-packages:
//   - sim/trace/: Transition and memory log records, their table rendering and summaries
//   - sim/workload/: Process descriptor and workload spec loading
//   - sim/report/: Writing logs and metrics to a local or remote destination
//
// Configuration is grouped in SimConfig (memory, policy, run) and can be
// overlaid from YAML through ConfigBundle.
package sim
