package main

import "github.com/jerryyoon-qcells/kvm-over-ip-sub000/cmd/kvm"

func main() {
	kvm.Execute()
}
