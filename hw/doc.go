// The hw package and its subpackages provide a hardware abstraction layer for
// the PlayStation.
//
// Every register block is reached through a small Port interface, so the same
// driver code runs against real hardware bindings or the simulator in package
// sim. All hardware capabilities are directly exposed and in general unsafe.
// Use the higher level libraries to write applications instead.
package hw
