// Command heapctl boots the simulated kernel heap and inspects it.
package main

func main() {
	execute()
}
