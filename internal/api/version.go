package api

// EngineVersion identifies results produced by this build of the simulation
// core. Bump when the stream derivation or trial semantics change, since
// stored summaries are only comparable within a version.
const EngineVersion = "promo-sim-1.0.0"
