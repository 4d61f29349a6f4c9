package nvp

import G "gorgonia.org/gorgonia"

// Stack composes an ordered sequence of Transforms into one Transform.
// Forward applies members in list order and sums their log-dets; Inverse
// applies each member's inverse in exactly reversed order. The member list is
// fixed at construction, so a Stack is itself a valid Transform and stacks
// nest to arbitrary depth.
type Stack struct {
	dim     int
	members []Transform
}

// NewStack validates and wraps the members. Empty lists, nil members and
// feature-dimension disagreements are construction errors; no data flows
// through an invalid stack.
func NewStack(members ...Transform) (*Stack, error) {
	if len(members) == 0 {
		return nil, validationErr("stack", "no members")
	}
	for i, t := range members {
		if t == nil {
			return nil, validationErr("stack", "member %d is nil", i)
		}
		if t.Dim() != members[0].Dim() {
			return nil, validationErr("stack", "member %d has dim %d, member 0 has dim %d", i, t.Dim(), members[0].Dim())
		}
	}
	s := &Stack{
		dim:     members[0].Dim(),
		members: make([]Transform, len(members)),
	}
	copy(s.members, members)
	return s, nil
}

// Dim implements Transform.
func (s *Stack) Dim() int { return s.dim }

// Members returns a copy of the ordered member list.
func (s *Stack) Members() []Transform {
	out := make([]Transform, len(s.members))
	copy(out, s.members)
	return out
}

// Forward implements Transform. The total log-det is the running sum of the
// members' log-dets.
func (s *Stack) Forward(x *G.Node) (*G.Node, *G.Node, error) {
	var m maebe
	var logDet *G.Node
	h := x
	for _, t := range s.members {
		var ld *G.Node
		var err error
		if h, ld, err = t.Forward(h); err != nil {
			return nil, nil, err
		}
		if logDet == nil {
			logDet = ld
		} else {
			logDet = m.add(logDet, ld)
		}
	}
	if m.err != nil {
		return nil, nil, m.err
	}
	return h, logDet, nil
}

// Inverse implements Transform. No log-det bookkeeping happens on this path;
// sampling does not need it.
func (s *Stack) Inverse(y *G.Node) (*G.Node, error) {
	h := y
	for i := len(s.members) - 1; i >= 0; i-- {
		var err error
		if h, err = s.members[i].Inverse(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}
