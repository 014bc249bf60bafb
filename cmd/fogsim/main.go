package main

func main() {
	Init()
}
