package nn

import (
	"math"
	"testing"

	"github.com/sonomed/sonoclass/tensor"
)

func buildTestNet(t *testing.T) *Sequential {
	t.Helper()
	SetRandomSeed(11)

	conv, err := NewConv2D("conv1", 1, 2, 3, 3, 1)
	if err != nil {
		t.Fatalf("failed to create conv: %v", err)
	}
	pool, err := NewMaxPool2D(2)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	fc, err := NewLinear("fc", 2, 1, true)
	if err != nil {
		t.Fatalf("failed to create linear: %v", err)
	}

	return NewSequential(conv, NewReLU(), pool, NewGlobalAvgPool(), fc)
}

func TestSequentialForwardBackward(t *testing.T) {
	net := buildTestNet(t)

	input, err := tensor.Normal([]int{3, 1, 8, 8}, 0, 1, globalSrc)
	if err != nil {
		t.Fatalf("failed to create input: %v", err)
	}

	out, err := net.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if !equalShapes(out.Shape, []int{3, 1}) {
		t.Fatalf("unexpected output shape %v", out.Shape)
	}

	upstream, _ := tensor.Ones(out.Shape)
	gradIn, err := net.Backward(upstream)
	if err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	if !equalShapes(gradIn.Shape, input.Shape) {
		t.Errorf("input gradient shape %v does not match input %v", gradIn.Shape, input.Shape)
	}
}

func TestSequentialEndToEndGradient(t *testing.T) {
	net := buildTestNet(t)

	input, err := tensor.Normal([]int{2, 1, 4, 4}, 0, 1, globalSrc)
	if err != nil {
		t.Fatalf("failed to create input: %v", err)
	}

	out, err := net.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	upstream, _ := tensor.Ones(out.Shape)
	if _, err := net.Backward(upstream); err != nil {
		t.Fatalf("backward failed: %v", err)
	}

	// Check every parameter gradient against finite differences.
	const eps = 1e-6
	for _, p := range net.Parameters() {
		for i := range p.Data.Data {
			orig := p.Data.Data[i]

			p.Data.Data[i] = orig + eps
			plus := sumForward(t, net, input)
			p.Data.Data[i] = orig - eps
			minus := sumForward(t, net, input)
			p.Data.Data[i] = orig

			numerical := (plus - minus) / (2 * eps)
			if math.Abs(p.Grad.Data[i]-numerical) > 1e-4 {
				t.Errorf("%s gradient %d: analytic %f vs numerical %f", p.Name, i, p.Grad.Data[i], numerical)
			}
		}
	}
}

func TestSequentialModeToggles(t *testing.T) {
	net := buildTestNet(t)

	if !net.IsTraining() {
		t.Error("new network should start in training mode")
	}

	net.Eval()
	if net.IsTraining() {
		t.Error("network should be in eval mode after Eval()")
	}
	for i, layer := range net.Layers() {
		if layer.IsTraining() {
			t.Errorf("layer %d still in training mode after Eval()", i)
		}
	}

	net.Train()
	if !net.IsTraining() {
		t.Error("network should be in training mode after Train()")
	}
}

func TestSnapshotRestore(t *testing.T) {
	net := buildTestNet(t)

	snapshot, err := Capture(net)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if !snapshot.Equal(net) {
		t.Fatal("snapshot should equal model immediately after capture")
	}

	// Mutate every parameter as a training step would.
	for _, p := range net.Parameters() {
		for i := range p.Data.Data {
			p.Data.Data[i] += 0.25
		}
		for i := range p.Grad.Data {
			p.Grad.Data[i] = 1.0
		}
	}
	if snapshot.Equal(net) {
		t.Fatal("snapshot should differ after parameters are mutated")
	}

	if err := snapshot.Restore(net); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !snapshot.Equal(net) {
		t.Error("parameters after restore do not match the snapshot")
	}
	for _, p := range net.Parameters() {
		for i, g := range p.Grad.Data {
			if g != 0 {
				t.Errorf("%s gradient %d not zeroed by restore", p.Name, i)
			}
		}
	}
}

func TestSnapshotIsImmutableCopy(t *testing.T) {
	net := buildTestNet(t)
	snapshot, _ := Capture(net)

	// Mutating the model must not leak into the captured snapshot.
	p := net.Parameters()[0]
	saved := snapshot[p.Name].Data[0]
	p.Data.Data[0] += 100

	if snapshot[p.Name].Data[0] != saved {
		t.Error("snapshot shares storage with live parameters")
	}
}

func TestDropoutModes(t *testing.T) {
	SetRandomSeed(13)
	drop, err := NewDropout(0.5)
	if err != nil {
		t.Fatalf("failed to create dropout: %v", err)
	}

	input, _ := tensor.Ones([]int{1000})

	drop.Eval()
	out, err := drop.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if !out.Equal(input) {
		t.Error("dropout in eval mode must be the identity")
	}

	drop.Train()
	out, err = drop.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}

	zeros := 0
	for _, v := range out.Data {
		switch v {
		case 0:
			zeros++
		case 2: // survivors scaled by 1/(1-p)
		default:
			t.Fatalf("unexpected dropout output value %f", v)
		}
	}
	if zeros < 300 || zeros > 700 {
		t.Errorf("dropout rate far from 0.5: %d/1000 zeroed", zeros)
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	flat := NewFlatten()

	input, _ := tensor.Normal([]int{2, 3, 4, 4}, 0, 1, globalSrc)
	out, err := flat.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if !equalShapes(out.Shape, []int{2, 48}) {
		t.Fatalf("unexpected flattened shape %v", out.Shape)
	}

	upstream, _ := tensor.Ones(out.Shape)
	gradIn, err := flat.Backward(upstream)
	if err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	if !equalShapes(gradIn.Shape, input.Shape) {
		t.Errorf("gradient shape %v does not match input %v", gradIn.Shape, input.Shape)
	}
}
