package arm

// hardFaultVectorOffset is the byte offset of the HardFault handler's entry
// (word index 3) in the vector table that begins at the flash alias base:
// 0=initial SP, 1=Reset, 2=NMI, 3=HardFault.
const hardFaultVectorOffset = 3 * 4

// Step executes exactly one instruction and reports why it stopped. This is
// "4.8 Step driver": check breakpoints, fetch/decode (through the cache),
// evaluate the IT condition if one is active, execute, advance the IT state
// machine, and move the instruction cursor forward by the instruction's
// width unless the executor itself redirected the PC. An instruction that
// stops with a reason other than YieldNone leaves the cursor on itself
// unless it redirected the PC.
func (arm *ARM) Step() YieldReason {
	if arm.halted {
		return YieldHalted
	}

	pc := arm.registers.InstructionPC()
	if arm.breakpoints[pc] {
		return YieldBreakpoint
	}

	arm.pcWasRedirected = false
	if handled, yield := arm.sym.intercept(arm, pc); handled {
		return yield
	}

	op, memErr := arm.decode(pc)
	if memErr != nil {
		arm.pendingFault = true
		arm.redirectToHardFault()
		return YieldFault
	}

	width := uint32(2)
	if op.Wide {
		width = 4
	}

	itActive := arm.it.Active()
	cond := arm.it.Condition()
	conditionMet := true
	if op.Opcode.String() == "B<c>" {
		conditionMet = arm.flags.Meets(conditionFromOp(op))
	} else if itActive {
		conditionMet = arm.flags.Meets(cond)
	}

	arm.instructionCount++
	nextPC := pc + width

	if conditionMet {
		wasFaulted := arm.pendingFault
		yield := arm.execute(op, pc, nextPC)
		if arm.pendingFault && !wasFaulted {
			arm.redirectToHardFault()
		}
		if yield != YieldNone {
			if itActive {
				arm.it.Advance()
			}
			return yield
		}
	}

	if itActive {
		arm.it.Advance()
	}

	if !arm.pcWasRedirected {
		arm.registers.SetInstructionPC(nextPC)
	}
	arm.pcWasRedirected = false

	if arm.instructionCount >= instructionLimit {
		return YieldInstructionLimit
	}
	return YieldNone
}

// Run steps repeatedly until a non-YieldNone reason is returned, used by the
// debug server's "continue" command. maxInstructions caps the loop even when
// the caller never intends to poll for an interrupt (0 means unlimited,
// bounded only by the hard instructionLimit).
func (arm *ARM) Run(maxInstructions int, shouldStop func() bool) YieldReason {
	n := 0
	for {
		reason := arm.Step()
		if reason != YieldNone {
			return reason
		}
		n++
		if maxInstructions > 0 && n >= maxInstructions {
			return YieldNone
		}
		if shouldStop != nil && n%128 == 0 && shouldStop() {
			return YieldNone
		}
	}
}

func conditionFromOp(op Op) Condition {
	return Condition(op.Cond)
}

// redirectToHardFault implements the driver side of the imprecise fault
// model: the instant a fault first becomes pending, PC is diverted to the
// handler named in the vector table rather than the instruction's natural
// successor. Firmware that installs a HardFault handler gets a chance to
// run it; firmware that doesn't just spins at whatever garbage lives at the
// vector, which is as much fidelity as a non-cycle-accurate core owes it.
func (arm *ARM) redirectToHardFault() {
	vector := arm.bus.ReadWord32(arm.mmap.FlashAliasBase + hardFaultVectorOffset)
	arm.branchTo(vector)
}
