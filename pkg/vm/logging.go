package vm

import "github.com/tliron/commonlog"

// Named loggers, one per component, matching the way chazu/maggie (and
// the wider tliron/commonlog ecosystem) scopes logging: every package
// that can fail independently gets its own logger name rather than one
// shared root logger. The backend (commonlog/simple) is registered only
// from cmd/gojvm; a library caller that never imports a backend still
// gets a harmless no-op logger.
var (
	classpathLog   = commonlog.GetLogger("gojvm.classpath")
	dispatchLog    = commonlog.GetLogger("gojvm.dispatch")
	reflectLog     = commonlog.GetLogger("gojvm.reflect")
	launchLog      = commonlog.GetLogger("gojvm.launch")
	classloaderLog = commonlog.GetLogger("gojvm.classloader")
)
