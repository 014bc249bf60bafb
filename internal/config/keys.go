package config

// Logging level: trace, debug, info, warn or error
const LOG_LEVEL = "log.level"

// Run configuration file (yaml or json)
const RUN_FILE = "run.file"

// Topology description file (yaml or json)
const TOPO_FILE = "run.topo"

// Policy name, overriding the one in the run file
const RUN_POLICY = "run.policy"

// Requests issued by every application, overriding the run file
const RUN_REQUESTS = "run.requests"

// Number of tasks per application left out of the statistics
const RUN_WARMUP = "run.warmup"

// Weight of the local queue in admission mixing, in (0,1]
const RUN_ALPHA = "run.alpha"

// Queue discipline: fifo or lifo
const RUN_DISCIPLINE = "run.discipline"

// Number of fog nodes failed during the fault window
const FAULT_COUNT = "fault.count"

// Enables the per-task trace (true/false)
const TRACE_ENABLED = "output.trace.enabled"

// Output files; empty means the output is not written
const REPORT_FILE = "output.report"
const TRACE_FILE = "output.trace.file"
const METRICS_FILE = "output.metrics"

// Capacity of every fog node built from a GML graph
const GML_FOG_CAPACITY = "gml.fog.capacity"

// Capacity of every cloud node built from a GML graph
const GML_CLOUD_CAPACITY = "gml.cloud.capacity"

// Bandwidth of the links built between the fogs of a GML graph
const GML_BANDWIDTH = "gml.bandwidth"
