package tap

// TAP endpoint paths, relative to the service base URL
const (
	endpointSync      = "/sync"                    // POST - synchronous query
	endpointAsync     = "/async"                   // POST - submit async job
	endpointJob       = "/async/%s"                // GET, DELETE - job document
	endpointJobPhase  = "/async/%s/phase"          // GET, POST - job phase
	endpointJobResult = "/async/%s/results/result" // GET - job result votable
)

// TAP_SCHEMA queries used for metadata discovery
const (
	queryTables  = "SELECT schema_name, table_name, description FROM TAP_SCHEMA.tables"
	queryColumns = "SELECT column_name, datatype, unit, ucd, description FROM TAP_SCHEMA.columns WHERE table_name = '%s'"
)
