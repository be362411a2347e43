// Copyright 2025 Certen Protocol
//
// The validation pipeline: kernel checks, static checks,
// spin evolution, then transition dispatch. The first non-kernel error
// aborts the whole pipeline and is surfaced with its DataPointer; kernel
// errors are the one batched exception.
package cm

import (
	"github.com/certenlabs/cm-core/pkg/particle"
	"github.com/certenlabs/cm-core/pkg/spin"
	"github.com/certenlabs/cm-core/pkg/store"
)

func (m *Machine) validate(atom *particle.Atom, view store.EngineStore) (*ApplicationResult, *CMError) {
	// 1. Kernel checks: run every registered procedure to completion and
	// batch the failures.
	var batch []string
	for _, kp := range m.kernelProcs {
		if err := kp(atom); err != nil {
			batch = append(batch, err.Error())
		}
	}
	if len(batch) > 0 {
		return nil, &CMError{Kind: KernelProcedureError, Batch: batch, Message: "one or more kernel procedures rejected the atom"}
	}

	// Lowering: pure, store-free structural checks plus flattening into
	// PUSH/group-end steps.
	steps, lowerErr := ToMicroInstructions(atom)
	if lowerErr != nil {
		return nil, lowerErr
	}

	// 2. Static checks, per pushed particle.
	for _, st := range steps {
		if st.Kind != StepPush {
			continue
		}
		def, ok := m.definitions[st.Push.Particle.Class()]
		if !ok {
			return nil, newErr(UnknownParticle, st.Push.Pointer, "no definition registered for class %q", st.Push.Particle.Class())
		}
		if def.StaticCheck != nil {
			if err := def.StaticCheck(st.Push.Particle); err != nil {
				return nil, newErr(StaticCheckFailed, st.Push.Pointer, "%v", err)
			}
		}
	}

	// 3. Spin evolution against the (virtualized) store, accumulated
	// within this atom: a particle pushed UP then DOWN in the same atom
	// must see its own prior push, not just its pre-atom store spin.
	withinAtom := make(map[[32]byte]spin.Spin)
	for _, st := range steps {
		if st.Kind != StepPush {
			continue
		}
		id := st.Push.Particle.ID()
		cur, seen := withinAtom[id]
		if !seen {
			cur = view.GetSpin(st.Push.Particle)
		}
		next, err := spin.Next(cur)
		if err != nil {
			return nil, newErr(SpinConflict, st.Push.Pointer, "particle is already at terminal spin DOWN")
		}
		if next != st.Push.Target {
			if cur == spin.NEUTRAL && st.Push.Target == spin.DOWN {
				return nil, newErr(MissingDependency, st.Push.Pointer, "particle is not currently UP in the store")
			}
			return nil, newErr(SpinConflict, st.Push.Pointer, "requested spin %v is not the successor of %v", st.Push.Target, cur)
		}
		withinAtom[id] = next
	}

	// 4. Transition dispatch.
	if cmErr := m.dispatch(atom, steps); cmErr != nil {
		return nil, cmErr
	}

	// Success: run compute hooks.
	result := &ApplicationResult{Computed: make(map[string]any, len(m.computes))}
	for key, fn := range m.computes {
		v, err := fn(atom)
		if err != nil {
			// Compute hooks are pure and derived; a failing hook is a
			// programming error in the scrypt, not an atom rejection.
			continue
		}
		result.Computed[key] = v
	}
	return result, nil
}

// pushesOf returns only the PUSH steps, in order, dropping group-end
// markers: dispatch only cares about push-to-push adjacency, across group
// boundaries as well as within a group.
func pushesOf(steps []Step) []Instruction {
	out := make([]Instruction, 0, len(steps))
	for _, s := range steps {
		if s.Kind == StepPush {
			out = append(out, s.Push)
		}
	}
	return out
}

// dispatch walks the flat push sequence looking for consecutive
// (DOWN, UP) pairs. Each pair starts a dispatch session that threads
// UsedData across as many further inputs/outputs as the procedure's
// used-compute callbacks demand.
func (m *Machine) dispatch(atom *particle.Atom, steps []Step) *CMError {
	pushes := pushesOf(steps)
	i := 0
	for i < len(pushes) {
		if i+1 < len(pushes) && pushes[i].Target == spin.DOWN && pushes[i+1].Target == spin.UP {
			next, cmErr := m.runSession(atom, pushes, i)
			if cmErr != nil {
				return cmErr
			}
			i = next
			continue
		}
		i++
	}
	return nil
}

// runSession drives one dispatch session starting at index start (where
// pushes[start] is the consuming DOWN and pushes[start+1] is the
// producing UP). It returns the index of the first push after the
// session ends.
func (m *Machine) runSession(atom *particle.Atom, pushes []Instruction, start int) (int, *CMError) {
	inIdx, outIdx := start, start+1
	in, out := pushes[inIdx].Particle, pushes[outIdx].Particle
	var inUsed, outUsed UsedData = VoidUsedData{}, VoidUsedData{}

	for {
		tok := TransitionToken{
			InputClass:     in.Class(),
			InputUsedType:  inUsed.Type(),
			OutputClass:    out.Class(),
			OutputUsedType: outUsed.Type(),
		}
		proc, ok := m.procedures[tok]
		if !ok {
			return 0, newErr(MissingProcedure, pushes[inIdx].Pointer, "no procedure registered for token %+v", tok)
		}
		if err := proc.Precondition(in, inUsed, out, outUsed); err != nil {
			return 0, newErr(PreconditionFailed, pushes[inIdx].Pointer, "%v", err)
		}
		if cmErr := m.checkRRI(in, out, pushes[inIdx].Pointer); cmErr != nil {
			return 0, cmErr
		}

		var inNext, outNext UsedData
		var inMore, outMore bool
		if proc.InputUsedCompute != nil {
			inNext, inMore = proc.InputUsedCompute(in, inUsed, out, outUsed)
		}
		if proc.OutputUsedCompute != nil {
			outNext, outMore = proc.OutputUsedCompute(in, inUsed, out, outUsed)
		}
		if inMore && outMore {
			return 0, newErr(UsedDataConflict, pushes[inIdx].Pointer, "both input and output used-compute returned a carry")
		}

		if proc.InputWitnessValidator != nil {
			if err := proc.InputWitnessValidator(in, atom.Witnesses); err != nil {
				return 0, newErr(WitnessFailure, pushes[inIdx].Pointer, "%v", err)
			}
		}
		if proc.OutputWitnessValidator != nil {
			if err := proc.OutputWitnessValidator(out, atom.Witnesses); err != nil {
				return 0, newErr(WitnessFailure, pushes[outIdx].Pointer, "%v", err)
			}
		}

		switch {
		case inMore:
			inUsed = inNext
			nextOutIdx := outIdx + 1
			if nextOutIdx >= len(pushes) || pushes[nextOutIdx].Target != spin.UP {
				return 0, newErr(UnbalancedGroup, pushes[outIdx].Pointer, "input carried a UsedData remainder with no following producing PUSH")
			}
			out = pushes[nextOutIdx].Particle
			outUsed = VoidUsedData{}
			outIdx = nextOutIdx
		case outMore:
			outUsed = outNext
			nextInIdx := inIdx + 1
			// the next consuming instruction must immediately follow the
			// current output for the pairing rule to keep holding.
			if nextInIdx >= outIdx {
				nextInIdx = outIdx + 1
			}
			if nextInIdx >= len(pushes) || pushes[nextInIdx].Target != spin.DOWN {
				return 0, newErr(UnbalancedGroup, pushes[inIdx].Pointer, "output carried a UsedData remainder with no following consuming PUSH")
			}
			in = pushes[nextInIdx].Particle
			inUsed = VoidUsedData{}
			inIdx = nextInIdx
		default:
			last := inIdx
			if outIdx > last {
				last = outIdx
			}
			return last + 1, nil
		}
	}
}

// checkRRI enforces the RRI-coupling rule: if both the input and output
// definitions carry an RRI mapper, their RRIs must agree.
func (m *Machine) checkRRI(in, out particle.Particle, ptr particle.DataPointer) *CMError {
	inDef, ok := m.definitions[in.Class()]
	if !ok || inDef.RRIMapper == nil {
		return nil
	}
	outDef, ok := m.definitions[out.Class()]
	if !ok || outDef.RRIMapper == nil {
		return nil
	}
	inRRI, ok := inDef.RRIMapper(in)
	if !ok {
		return nil
	}
	outRRI, ok := outDef.RRIMapper(out)
	if !ok {
		return nil
	}
	if !inRRI.Equal(outRRI) {
		return newErr(RRIMismatch, ptr, "input RRI %s does not match output RRI %s", inRRI, outRRI)
	}
	return nil
}
