// Command viewership builds the Film and TV master tables from a folder of
// "What We Watched" engagement exports and reports on them.
//
// Subcommands:
//
//	files    list the exports the pipeline would read
//	build    write the master tables as CSV and as one XLSX workbook
//	top      print a top-N franchise table for film or tv
//	halves   print views by fiscal half, split by media, availability or ownership
//	upload   validate and add exports to the exports folder
//	serve    run the HTTP and WebSocket server
//	version  print build information
//
// Tables are rendered for terminals; pass --json, or pipe the output, to
// get JSON instead. Logs always go to stderr.
package main
