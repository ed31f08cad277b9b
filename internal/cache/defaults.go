package cache

// DefaultEntries are the canned replies shipped with the service. Order matters
// for partial matching.
var DefaultEntries = []Entry{
	{Phrase: "hola", Reply: "¡Hola! 👋 Te damos la bienvenida a la tienda. ¿Buscas algo en especial hoy? Puedo recomendarte prendas, tallas y promociones."},
	{Phrase: "buenos días", Reply: "¡Buenos días! ☀️ ¿En qué te puedo ayudar? Cuéntame qué estás buscando y te muestro nuestras mejores opciones."},
	{Phrase: "buenas tardes", Reply: "¡Buenas tardes! 😊 ¿Te ayudo a encontrar algo del catálogo?"},
	{Phrase: "buenas noches", Reply: "¡Buenas noches! 🌙 Estoy aquí para ayudarte a elegir tu próximo look."},
	{Phrase: "gracias", Reply: "¡Con mucho gusto! 💕 Si necesitas algo más, aquí estoy."},
	{Phrase: "adiós", Reply: "¡Hasta pronto! Gracias por visitarnos. 👋"},
	{Phrase: "envío", Reply: "Hacemos envíos a todo el país. El costo y el tiempo de entrega se calculan en el checkout según tu dirección."},
	{Phrase: "métodos de pago", Reply: "Aceptamos tarjetas de crédito y débito, transferencia bancaria y pago contra entrega en ciudades seleccionadas."},
	{Phrase: "devolución", Reply: "Tienes 30 días para cambios o devoluciones, siempre que la prenda esté sin uso y con etiquetas."},
	{Phrase: "horario", Reply: "Nuestra tienda en línea está abierta 24/7. La atención personalizada es de lunes a sábado de 9:00 a 19:00."},
}
