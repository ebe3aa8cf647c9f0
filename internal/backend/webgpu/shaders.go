//go:build windows

package webgpu

// WGSL compute shaders, embedded as strings. The element-wise kernels
// differ only in one expression and are rendered from templates; the
// structured kernels (matmul, softmax, reductions, gather) are written
// out in full.

// workgroupSize is the number of threads per 1D workgroup.
const workgroupSize = 256

// tileSize is the edge of the 2D workgroups used by matmul and
// transpose.
const tileSize = 16

// Element-wise kernels, one pipeline per operation.
var (
	addShader = binaryShader("+")
	subShader = binaryShader("-")
	mulShader = binaryShader("*")
	divShader = binaryShader("/")

	scalarAddShader = scalarShader("+")
	scalarMulShader = scalarShader("*")

	expShader     = unaryShader("exp(x)")
	logShader     = unaryShader("log(x)")
	reluShader    = unaryShader("max(0.0, x)")
	sigmoidShader = unaryShader("1.0 / (1.0 + exp(-x))")
	tanhShader    = unaryShader("tanh(x)")
)

// binaryShader renders the two-operand element-wise kernel for a WGSL
// infix operator.
func binaryShader(op string) string {
	return `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] ` + op + ` b[idx];
    }
}
`
}

// unaryShader renders a one-input element-wise kernel; expr is a WGSL
// expression over x.
func unaryShader(expr string) string {
	return `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let x = input[idx];
        result[idx] = ` + expr + `;
    }
}
`
}

// scalarShader renders the tensor-scalar kernel for a WGSL infix
// operator. The scalar rides in the uniform params.
func scalarShader(op string) string {
	return `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = input[idx] ` + op + ` params.scalar;
    }
}
`
}

// matmulShader computes C = A @ B with one thread per output element.
// A is [M, K], B is [K, N], C is [M, N].
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,
    K: u32,
    N: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        sum = sum + a[row * params.K + k] * b[k * params.N + col];
    }

    result[row * params.N + col] = sum;
}
`

// transposeShader flips a 2D matrix.
const transposeShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.rows || col >= params.cols) {
        return;
    }

    result[col * params.rows + row] = input[row * params.cols + col];
}
`

// softmaxShader normalizes each row of a [rows, width] view, one thread
// per row, shifting by the row max so large logits do not overflow.
const softmaxShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    width: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }

    let offset = row * params.width;

    var max_val: f32 = input[offset];
    for (var i: u32 = 1u; i < params.width; i = i + 1u) {
        max_val = max(max_val, input[offset + i]);
    }

    var sum: f32 = 0.0;
    for (var i: u32 = 0u; i < params.width; i = i + 1u) {
        let e = exp(input[offset + i] - max_val);
        result[offset + i] = e;
        sum = sum + e;
    }

    for (var i: u32 = 0u; i < params.width; i = i + 1u) {
        result[offset + i] = result[offset + i] / sum;
    }
}
`

// globalSumShader reduces a tree of partial sums in workgroup shared
// memory; each workgroup emits one partial. The host dispatches passes
// until a single element remains.
const globalSumShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

var<workgroup> shared_data: array<f32, 256>;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let tid = local_id.x;

    if (global_id.x < params.size) {
        shared_data[tid] = input[global_id.x];
    } else {
        shared_data[tid] = 0.0;
    }
    workgroupBarrier();

    for (var s: u32 = 128u; s > 0u; s = s >> 1u) {
        if (tid < s) {
            shared_data[tid] = shared_data[tid] + shared_data[tid + s];
        }
        workgroupBarrier();
    }

    if (tid == 0u) {
        result[workgroup_id.x] = shared_data[0];
    }
}
`

// sumRowsShader reduces each row of a [rows, width] view to one value,
// one thread per row.
const sumRowsShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    width: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }

    let offset = row * params.width;
    var sum: f32 = 0.0;
    for (var i: u32 = 0u; i < params.width; i = i + 1u) {
        sum = sum + input[offset + i];
    }

    result[row] = sum;
}
`

// argmaxShader finds the index of the maximum in each row of a
// [rows, width] view; ties resolve to the first index. Indices are
// emitted as f32 and converted on readback.
const argmaxShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    width: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }

    let offset = row * params.width;
    var max_val = input[offset];
    var max_idx: u32 = 0u;

    for (var i: u32 = 1u; i < params.width; i = i + 1u) {
        let v = input[offset + i];
        if (v > max_val) {
            max_val = v;
            max_idx = i;
        }
    }

    result[row] = f32(max_idx);
}
`

// embeddingShader gathers weight rows by int32 index, one thread per
// output element. weight is [num_embeddings, dim]; output is
// [num_indices, dim]. Out-of-range indices zero-fill; the host rejects
// them before dispatch.
const embeddingShader = `
@group(0) @binding(0) var<storage, read> weight: array<f32>;
@group(0) @binding(1) var<storage, read> indices: array<i32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    num_indices: u32,
    dim: u32,
    num_embeddings: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.num_indices * params.dim) {
        return;
    }

    let row = u32(indices[idx / params.dim]);
    if (row < params.num_embeddings) {
        result[idx] = weight[row * params.dim + idx % params.dim];
    } else {
        result[idx] = 0.0;
    }
}
`
