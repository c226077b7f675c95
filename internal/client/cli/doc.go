// Package cli provides the interactive healthsync terminal client.
//
// It wires configuration, the local SQLite store, the remote backend and the
// sync session, then runs a REPL over the diary table:
//
//	list | l | show                      print the table
//	set <DD.MM> <morning|evening|pain> <value>
//	clear <DD.MM>                        empty one day
//	syncid [<id>]                        show or change the SyncId
//	gensync                              generate a random SyncId
//	sync                                 push now
//	status                               session and notice state
//	export json|pdf [path]
//	import <path>
//	exit | quit
//
// Every edit sends a full snapshot of the table to the session, which saves
// it locally and schedules a push. Remote changes re-print the table.
package cli
