// Command heapctl inspects and edits heapkit files.
package main

func main() {
	execute()
}
