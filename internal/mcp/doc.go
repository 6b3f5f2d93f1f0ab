// Package mcp exposes session control as a Model Context Protocol server.
//
// The server offers tools to create, resume and cancel sessions, to list
// them, and to page through the events each session produced. It runs over
// any MCP transport; the daemon uses stdio.
package mcp
