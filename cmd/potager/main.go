// Command potager serves the garden planner API and drives the planner from
// the terminal.
package main

func main() {
	Execute()
}
