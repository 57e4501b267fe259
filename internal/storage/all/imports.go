// Package all enables every built-in manifest backend. It exists for its
// side effects only:
//
//	import _ "mwdump/internal/storage/all"
package all

import (
	_ "mwdump/internal/storage/mssql"
	_ "mwdump/internal/storage/mysql"
	_ "mwdump/internal/storage/postgres"
	_ "mwdump/internal/storage/sqlite"
)
